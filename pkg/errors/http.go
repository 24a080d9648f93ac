package errors

// HTTPStatusCode maps an error to a response status. Only invalid input is a
// client error; every other failure, typed or not, is a 500.
func HTTPStatusCode(err error) int {
	if IsInvalidRequest(err) {
		return StatusBadRequest
	}
	return StatusInternalServerError
}
