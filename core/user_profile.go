package core

// UserProfile 是用户画像的核心抽象。
//
// 一句话定义：用户画像 = 重排阶段的"上下文摘要 + 解释信号"
//
// 它由引擎在每次请求时从当前快照构建：
//  - History：按交互分降序的近期行为（截断到 HistoryLimit）
//  - TopClusters：按交互次数降序的簇偏好（截断到 ClusterLimit）
//  - PersonaHint：自然语言画像提示，交给外部模型做重排参考
//
// 冷启动用户（不在交互索引中）得到空 History 与 sparse-history 提示。
type UserProfile struct {
	UserID string `json:"user_id"`

	// 行为摘要（长期）- ReRank 核心
	History []HistoryEntry `json:"history"`

	// 簇偏好（粗粒度兴趣信号）
	TopClusters []ClusterAffinity `json:"top_clusters"`

	// 画像提示（自然语言，透传给外部模型）
	PersonaHint string `json:"persona_hint"`
}

// HistoryEntry 是一条带元数据的加权交互记录。
type HistoryEntry struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	ClusterID    *int64  `json:"cluster_id"`
	MainCategory string  `json:"main_category"`
	SubCategory  string  `json:"sub_category"`
	Brand        string  `json:"brand"`
}

// ClusterAffinity 是用户对某个簇的亲和度统计。
type ClusterAffinity struct {
	ClusterID   int64  `json:"cluster_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// NewColdStartProfile 创建冷启动用户画像。
func NewColdStartProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:      userID,
		History:     []HistoryEntry{},
		TopClusters: []ClusterAffinity{},
		PersonaHint: "New or cold-start user with very limited behavior.",
	}
}
