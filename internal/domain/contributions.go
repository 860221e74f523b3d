// Package domain contains the core data structures and domain logic for the application.
package domain

import "strings"

// Repository is the subset of GitHub repository metadata the aggregation needs.
type Repository struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Fork     bool   `json:"fork"`
	// Source is the full name of the repository this one was forked from.
	// Empty for non-forks.
	Source string `json:"source,omitempty"`
}

// Owner returns the owner login part of the full name.
func (r *Repository) Owner() string {
	return OwnerOf(r.FullName)
}

// OwnerOf returns the owner part of an "owner/name" identifier.
func OwnerOf(fullName string) string {
	owner, _, _ := strings.Cut(fullName, "/")
	return owner
}

// SplitFullName splits "owner/name" into its parts.
func SplitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}

// OwnedBy reports whether the repository identified by fullName belongs to org.
// Logins are compared case-insensitively.
func OwnedBy(fullName, org string) bool {
	return strings.EqualFold(OwnerOf(fullName), org)
}

// Contributor is one entry of a repository's contributor listing.
type Contributor struct {
	Login         string
	Contributions int
}

// Event is a user activity event that targets a repository.
type Event struct {
	Type  string
	Actor string
	Repo  string
}

// Issue is a closed issue together with its comment count.
type Issue struct {
	Number   int
	Author   string
	Comments int
}

// RepoContributions holds the contributors of a single repository.
type RepoContributions struct {
	Stars        int            `json:"stars"`
	Contributors map[string]int `json:"contributors"`
}

// NewRepoContributions returns an empty entry with the given star count.
func NewRepoContributions(stars int) *RepoContributions {
	return &RepoContributions{Stars: stars, Contributors: make(map[string]int)}
}

// Add merges counts into the entry.
func (r *RepoContributions) Add(counts map[string]int) {
	for login, n := range counts {
		r.Contributors[login] += n
	}
}

// OrgContributions maps org -> repository name -> contributors.
type OrgContributions map[string]map[string]*RepoContributions

// ExternalContributions maps org -> repository full name -> contributors, for
// repositories outside the org that its members contributed to.
type ExternalContributions map[string]map[string]*RepoContributions

// HelpedRepo is a repository a helped user recently contributed to.
type HelpedRepo struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
}

// HelpedUsers maps a user login to their top recent external contributions.
type HelpedUsers map[string][]HelpedRepo

// DefaultEventTypes are the event kinds counted as contributions.
var DefaultEventTypes = []string{"PushEvent", "PullRequestEvent"}
