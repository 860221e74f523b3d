package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/github-orgstats/internal/gateway"
)

// MemberDirectory answers who belongs to an org.
type MemberDirectory struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger

	inflight   singleflight.Group
	mu         sync.Mutex
	membership map[string]bool
}

// NewMemberDirectory creates a directory with an empty membership memo.
func NewMemberDirectory(fetcher gateway.Fetcher, logger logrus.FieldLogger) *MemberDirectory {
	return &MemberDirectory{
		fetcher:    fetcher,
		logger:     logger,
		membership: make(map[string]bool),
	}
}

// MembersOfOrg lists the logins of the public members of an org, or of all
// members when private is set.
func (d *MemberDirectory) MembersOfOrg(ctx context.Context, org string, private bool) ([]string, error) {
	if private {
		d.logger.WithField("org", org).Debug("Fetching PUBLIC and PRIVATE members")
	} else {
		d.logger.WithField("org", org).Debug("Fetching PUBLIC members")
	}
	return d.fetcher.ListMembers(ctx, org, private)
}

// IsMember reports whether user belongs to org. Each (org, user) pair is
// checked remotely at most once. A failed check counts as "not a member".
func (d *MemberDirectory) IsMember(ctx context.Context, org, user string) bool {
	key := strings.ToLower(org + "/" + user)

	v, _, _ := d.inflight.Do(key, func() (interface{}, error) {
		d.mu.Lock()
		member, ok := d.membership[key]
		d.mu.Unlock()
		if ok {
			return member, nil
		}

		member, err := d.fetcher.IsMember(ctx, org, user)
		if err != nil {
			d.logger.WithError(err).WithField("org", org).Debugf("Membership check for %s failed; treating as non-member", user)
			member = false
		}
		d.mu.Lock()
		d.membership[key] = member
		d.mu.Unlock()
		return member, nil
	})
	return v.(bool)
}
