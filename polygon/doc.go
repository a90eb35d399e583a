// Package polygon implements the polygon genotype for image evolution.
//
// A [Chromosome] is a fixed-length list of semi-transparent polygons with
// normalized vertex coordinates. Drawing a chromosome paints a white
// background and then fills every polygon in order, so a render always
// overwrites the full canvas, a requirement of the fitness pipeline,
// which reuses canvases across evaluations.
//
// The package also provides the genotype-specific variation operators
// ([Mutator], [UniformCrossover], [MeanAlterer]) that plug into the
// genetic engine.
package polygon
