package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 文档存储后端
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendMinio    = "minio"
	BackendOSS      = "oss"
)

const (
	SortByName   = "name"
	SortByStatus = "status"
	SortByTheme  = "theme"
)
