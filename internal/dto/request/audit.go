package request

const (
	DefaultAuditLimit = 200
	MaxAuditLimit     = 500
)

type AuditQueryRequest struct {
	EntityType  string `json:"entity_type" validate:"omitempty,oneof=gig booking catalog"`
	EntityID    string `json:"entity_id" validate:"omitempty,uuid"`
	ActorUserID string `json:"actor_user_id" validate:"omitempty,uuid"`
	Action      string `json:"action" validate:"omitempty,max=64"`
	Limit       int    `json:"limit"`
}

// ClampedLimit bounds the limit to [1, MaxAuditLimit], defaulting when unset.
func (r AuditQueryRequest) ClampedLimit() int {
	switch {
	case r.Limit == 0:
		return DefaultAuditLimit
	case r.Limit < 1:
		return 1
	case r.Limit > MaxAuditLimit:
		return MaxAuditLimit
	}
	return r.Limit
}
