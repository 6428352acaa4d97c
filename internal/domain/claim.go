package domain

type ClaimType string

const (
	ClaimYearlyCommits   ClaimType = "yearly_commits"
	ClaimConsecutiveDays ClaimType = "consecutive_days"
	ClaimTotalStars      ClaimType = "total_stars"
	ClaimPublicRepos     ClaimType = "public_repos"
)

func (t ClaimType) Valid() bool {
	switch t {
	case ClaimYearlyCommits, ClaimConsecutiveDays, ClaimTotalStars, ClaimPublicRepos:
		return true
	}
	return false
}

func (t ClaimType) DefaultThreshold() int {
	switch t {
	case ClaimYearlyCommits:
		return 365
	case ClaimConsecutiveDays:
		return 100
	case ClaimTotalStars:
		return 1000
	case ClaimPublicRepos:
		return 10
	}
	return 0
}
