package conversation

import "errors"

var errUnknownOutcome = errors.New("unknown stream outcome")
