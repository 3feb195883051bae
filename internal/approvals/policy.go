package approvals

import (
	"strings"

	"github.com/gearbookhq/gearbook-backend/pkg/config"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	"github.com/gearbookhq/gearbook-backend/pkg/types"
)

// Policy decides which approval state a new reservation enters with. VIP
// requesters skip the manual approval queue.
type Policy struct {
	vipUserIDs map[string]struct{}
	vipDomains []string
	autoAll    bool
}

// NewPolicy builds the approval entry policy from config.
func NewPolicy(cfg config.ApprovalConfig) Policy {
	ids := make(map[string]struct{}, len(cfg.VIPUserIDs))
	for _, id := range cfg.VIPUserIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids[trimmed] = struct{}{}
		}
	}
	domains := make([]string, 0, len(cfg.VIPDomains))
	for _, domain := range cfg.VIPDomains {
		if trimmed := strings.ToLower(strings.TrimSpace(domain)); trimmed != "" {
			domains = append(domains, strings.TrimPrefix(trimmed, "@"))
		}
	}
	return Policy{vipUserIDs: ids, vipDomains: domains, autoAll: cfg.AutoApproveAll}
}

// EntryState returns the approval state a submission starts in.
func (p Policy) EntryState(actor types.Actor) enums.ApprovalStatus {
	if p.autoAll || p.isVIP(actor) {
		return enums.ApprovalStatusAutoApproved
	}
	return enums.ApprovalStatusPendingApproval
}

func (p Policy) isVIP(actor types.Actor) bool {
	if _, ok := p.vipUserIDs[actor.UserID]; ok {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(actor.Email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, vip := range p.vipDomains {
		if domain == vip {
			return true
		}
	}
	return false
}
