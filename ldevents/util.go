package ldevents

import "fmt"

type httpStatusError struct {
	Message string
	Code    int
}

func (e httpStatusError) Error() string { return e.Message }

func checkForHTTPError(statusCode int, url string) error {
	switch statusCode {
	case 401, 403:
		return httpStatusError{
			Message: fmt.Sprintf("invalid credentials accessing %s", url),
			Code:    statusCode,
		}
	}
	if statusCode/100 != 2 {
		return httpStatusError{
			Message: fmt.Sprintf("unexpected response code %d accessing %s", statusCode, url),
			Code:    statusCode,
		}
	}
	return nil
}

// isHTTPErrorRecoverable reports whether a failure status might resolve on retry, or at least
// shouldn't make the dispatcher permanently stop sending events.
func isHTTPErrorRecoverable(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case 400, 408, 429:
			return true
		default:
			return false
		}
	}
	return true
}

func httpErrorMessage(statusCode int, context string, recoverableMessage string) string {
	resultMessage := recoverableMessage
	if !isHTTPErrorRecoverable(statusCode) {
		resultMessage = "giving up permanently"
	}
	return fmt.Sprintf("received HTTP error %d for %s - %s", statusCode, context, resultMessage)
}
