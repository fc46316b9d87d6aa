package cli

var (
	PrintProgress  = printProgress
	GetIndexConfig = getIndexConfig
)
