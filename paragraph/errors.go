package paragraph

import "fmt"

// errParagraph wraps a message as a user-facing layout error.
func errParagraph(x string) error {
	return fmt.Errorf("text layout: %s", x)
}

// errParagraphf wraps a formatted message as a user-facing layout error.
func errParagraphf(format string, args ...interface{}) error {
	return fmt.Errorf("text layout: "+format, args...)
}
