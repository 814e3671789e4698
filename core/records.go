package core

import "context"

// 行为事件动作常量。cart 与 favorite 两条流各自的动作集合。
const (
	ActionAdded           = "added"
	ActionQuantityUpdated = "quantity_updated"
	ActionRemoved         = "removed"
)

// CartEvent 是购物车行为日志的一条原始记录。
// 聚合之后不再保留。
type CartEvent struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"` // added / quantity_updated / removed
}

// FavoriteEvent 是收藏行为日志的一条原始记录。
type FavoriteEvent struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"` // added / removed
}

// Product 是商品目录的一条记录。
//
// 计数/价格字段保持原始文本形态（上游数据带货币符号和千分位），
// 统一经 pkg/conv 的清洗函数转为数值，解析失败一律按 0 处理。
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	MainCategory  string `json:"main_category"`
	SubCategory   string `json:"sub_category"`
	Image         string `json:"image"`
	Link          string `json:"link"`
	Ratings       string `json:"ratings"`
	RatingsCount  string `json:"no_of_ratings"`
	DiscountPrice string `json:"discount_price"`
	ActualPrice   string `json:"actual_price"`

	// ClusterID 为空表示商品未入簇
	ClusterID *int64 `json:"cluster_id"`

	// 流行度计数器（全站聚合行为信号）
	Buys      string `json:"buys"`
	AddToCart string `json:"add_to_cart"`
}

// Cluster 是预计算的商品簇，作为粗粒度兴趣信号。
type Cluster struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ProductCount int64  `json:"product_count"`
}

// Recommendation 是引擎暴露给 serving 层的最终输出记录。
type Recommendation struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	MainCategory  string  `json:"main_category"`
	SubCategory   string  `json:"sub_category"`
	Image         string  `json:"image"`
	Link          string  `json:"link"`
	ClusterID     *int64  `json:"cluster_id"`
	DiscountPrice string  `json:"discount_price"`
	ActualPrice   string  `json:"actual_price"`
	Ratings       string  `json:"ratings"`
	CFScore       float64 `json:"cf_score"`
	LLMScore      float64 `json:"llm_score"`
	FinalScore    float64 `json:"final_score"`
	Reason        string  `json:"reason"`
}

// RecordStore 是数据存储协作方的领域接口：四条记录流的分页范围读取。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 每次调用返回 [offset, offset+limit) 范围内的记录；返回条数小于
//     limit 表示该流已经读尽
//   - 两条事件流与商品目录之间没有跨表事务保证，一致性只在 refresh
//     时刻建立（最终一致）
//
// 实现：
//   - store.MemoryRecordStore（原型 / 测试）
//   - store.RedisRecordStore（serving 层把活动日志与目录缓存写入 Redis）
type RecordStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// CartEvents 读取购物车活动日志的一页
	CartEvents(ctx context.Context, offset, limit int) ([]CartEvent, error)

	// FavoriteEvents 读取收藏活动日志的一页
	FavoriteEvents(ctx context.Context, offset, limit int) ([]FavoriteEvent, error)

	// Products 读取商品目录的一页
	Products(ctx context.Context, offset, limit int) ([]Product, error)

	// Clusters 读取簇目录的一页
	Clusters(ctx context.Context, offset, limit int) ([]Cluster, error)

	// Close 关闭连接/释放资源
	Close() error
}

// ChatService 是语言模型协作方的领域接口：一次 chat-style 补全调用。
//
// 约定：
//   - 单次尽力而为（best-effort），无重试；超时由调用方用 ctx 控制
//   - 凭证缺失时返回 ErrNoCredential，调用方据此走无信号降级路径
//
// 实现：
//   - service.OpenAIChat
type ChatService interface {
	// Complete 发起一次补全：system 指令 + user 载荷，返回模型原始文本
	Complete(ctx context.Context, system, user string) (string, error)
}
