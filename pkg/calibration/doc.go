/*
Package calibration maps design-space coordinates onto stage coordinates.

A Calibrator solves the affine matrix that carries three design points exactly
onto their observed stage positions. A Transformer owns the installed matrix
and refuses to convert anything until one is set. Selectors pick the three
calibration targets from a catalog; the flag based and the corner based
strategies are kept separate on purpose and never combined.
*/
package calibration
