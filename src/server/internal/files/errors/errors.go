package fileerrors

import (
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
)

const (
	PathEscapeCode    = api.ErrorCode("path_escape")
	FileNotFoundCode  = api.ErrorCode("file_not_found")
	NotADirectoryCode = api.ErrorCode("not_a_directory")
	IsADirectoryCode  = api.ErrorCode("is_a_directory")
)
