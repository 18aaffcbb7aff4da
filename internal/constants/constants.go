package constants

const SpeedOfLight float64 = 2.99792458e8                                        // [m s^-1]
const FreeSpacePermittivityE0 float64 = 8.8541878188e-12                         // [m^-3 kg^{-1} s^4 A^2]
const FreeSpaceImpedance float64 = 1. / (FreeSpacePermittivityE0 * SpeedOfLight) // [Ohm] Z0 = 1/(e0*c)
const NominalFiberIndex float64 = 1.44
const Quantile95 = 1.96
