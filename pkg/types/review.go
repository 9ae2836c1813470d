package types //nolint:revive // package name is intentional

// ReviewRecommendation is the second-opinion call to action.
type ReviewRecommendation string

// Review recommendations.
const (
	RecommendPublish ReviewRecommendation = "publish"
	RecommendRevise  ReviewRecommendation = "revise"
	RecommendRewrite ReviewRecommendation = "rewrite"
)

// ReviewOpinion is a short qualitative verdict from an independent provider.
type ReviewOpinion struct {
	Score          int                  `json:"score"`
	Strengths      []string             `json:"strengths"`
	Weaknesses     []string             `json:"weaknesses"`
	Recommendation ReviewRecommendation `json:"recommendation"`
	Summary        string               `json:"summary"`

	// Provider is the vendor that produced the opinion; set locally.
	Provider string `json:"provider,omitempty"`
}
