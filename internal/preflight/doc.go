// Package preflight validates the environment before a propagation run:
// the predictor binary must resolve on PATH and the dataset directories must
// be accessible. The doctor command surfaces the results so operators can
// fix a broken setup before claiming the accelerator.
package preflight
