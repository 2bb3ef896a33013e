package conformance

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/idna"
)

// checkFormat verifies a string against a schema format. Formats the
// validator does not know are treated as annotations and pass, per the
// JSON Schema treatment of unknown formats.
func checkFormat(format, value string) error {
	switch format {
	case "uuid":
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("not a valid UUID: %w", err)
		}
	case "hostname":
		if _, err := idna.Lookup.ToASCII(value); err != nil {
			return fmt.Errorf("not a valid hostname: %w", err)
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return fmt.Errorf("not a valid RFC 3339 timestamp: %w", err)
		}
	case "date":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("not a valid date: %w", err)
		}
	case "byte":
		if _, err := base64.StdEncoding.DecodeString(value); err != nil {
			return fmt.Errorf("not valid base64: %w", err)
		}
	}
	return nil
}
