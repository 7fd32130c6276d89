package internal

const (
	// 配置文件默认路径
	DefaultConfigPath = "config.json"

	// 运行账本默认路径
	DefaultLedgerPath = "~/.file-organizer/organizer.db"

	// 哈希计算时每次读取的块大小
	HashChunkSize = 64 * 1024

	// 默认分类（未匹配任何规则时）
	DefaultCategory = "Others"

	// 无扩展名文件的分类
	NoExtensionCategory = "no_extension"

	// 并发计算时的默认工作线程数
	DefaultWorkers = 4

	// 目标目录中的运行锁文件名
	LockFileName = ".organizer.lock"

	// 目标目录中的移动日志文件名
	JournalFileName = ".organizer-journal"
)
