package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewCorrelationID returns an opaque tracing token of the form corr_<unix-ms>_<9 chars>.
// It is never derived from request content.
func NewCorrelationID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("corr_%d_%s", time.Now().UnixMilli(), random[:9])
}
