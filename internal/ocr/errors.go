package ocr

import "fmt"

// FallbackError reports that both recognition providers failed. The local
// engine's error leads the message since it was the last attempt; the
// remote cause is carried alongside so diagnosis does not lose the root
// failure.
type FallbackError struct {
	Remote error
	Local  error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%v (remote attempt: %v)", e.Local, e.Remote)
}

// Unwrap exposes both causes to errors.Is/As.
func (e *FallbackError) Unwrap() []error {
	return []error{e.Local, e.Remote}
}
