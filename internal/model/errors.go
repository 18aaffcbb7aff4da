package model

import "errors"

// ErrNumericInstability marks a non-finite value produced during field
// evaluation, convolution or intensity mapping. The run is aborted with the
// offending index rather than handing out a partially corrupted trace.
var ErrNumericInstability = errors.New("model: numeric instability")
