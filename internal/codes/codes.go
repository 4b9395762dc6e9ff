package codes

// ErrorCodes maps glslangValidator exit codes to their descriptions
var ErrorCodes = map[int]string{
	0: "Success",
	1: "Usage error",
	2: "Compile errors",
	3: "Link errors",
	4: "Cannot create compiler",
	5: "Cannot create thread",
	6: "Cannot create linker",
}

// IsSuccess returns true if the exit code indicates successful compilation
func IsSuccess(code int) bool {
	return code == 0
}

// GetErrorMessage returns the error message for a given exit code, or a generic message if unknown
func GetErrorMessage(code int) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}
