// Package classify converts candidate similarity scores into match
// categories using configurable thresholds.
//
// Classification is a pure function of scores and thresholds. The four
// cut points form a rectangular decision region: artist and title
// similarity must each clear their own bar, with no blending between the
// two dimensions.
package classify
