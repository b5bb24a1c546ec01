// Package plotting renders displacement/force charts of a measurement series as PNG.
//
// Every recording is drawn as one curve up to the displacement limit of the chart, with
// its colour taken from a diverging colour map and a marker on its peak force. The mean
// and standard deviation of peak force, work and modulus are printed in the upper left
// corner; unset statistics show as "n/a".
package plotting
