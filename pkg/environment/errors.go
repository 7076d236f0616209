package environment

import "errors"

var ErrUnknown = errors.New("environment: unknown environment")
