package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, UNAVAILABLE
//   - Snapshot 错误：UNAVAILABLE（数据源不可达时 refresh 中止）
//   - Rerank 错误：UNAVAILABLE（凭证缺失 / 外部模型服务失败）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "snapshot", "rerank"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 记录流存储
	ModuleSnapshot = "snapshot" // 快照构建
	ModuleRerank   = "rerank"   // 外部重排服务
	ModuleEngine   = "engine"   // 引擎编排
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// Store 错误定义
var (
	// ErrStoreNotFound 表示 key / 记录不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: record not found")

	// ErrStoreUnavailable 表示数据源不可达（refresh 时中止，保留旧快照）
	ErrStoreUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: backend unavailable")

	// ErrNoCredential 表示外部模型服务凭证缺失（降级为 CF-only）
	ErrNoCredential = NewDomainError(ModuleRerank, ErrorCodeUnavailable, "rerank: no credential configured")
)

// IsStoreNotFound 检查错误是否为记录不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
