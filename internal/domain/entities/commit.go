package entities

// Commit is one entry of a package's history.
type Commit struct {
	Hash    string
	Subject string
	Body    string
}

// Committer is the identity used for release tags and branch commits.
type Committer struct {
	Name  string
	Email string
}

// Committer returns the configured git identity.
func (s *Settings) Committer() Committer {
	return Committer{Name: s.GitCommitterName, Email: s.GitCommitterEmail}
}
