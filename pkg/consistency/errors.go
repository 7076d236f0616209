package consistency

import "errors"

// ErrInconsistent is matched by every non-empty Report.
var ErrInconsistent = errors.New("consistency: rule set is inconsistent")
