package git

import (
	"net/url"
	"strings"
)

// hostUsers maps hosting services to the user name they expect for token auth.
//
//nolint:gochecknoglobals // static lookup table
var hostUsers = map[string]string{
	"github.com":    "x-access-token",
	"gitlab.com":    "oauth2",
	"dev.azure.com": "pat",
}

const defaultTokenUser = "token"

// TokenUser returns the basic-auth user name to pair with a token for remoteURL.
func TokenUser(remoteURL string) string {
	if user, ok := hostUsers[remoteHost(remoteURL)]; ok {
		return user
	}
	return defaultTokenUser
}

// RedactURL drops credentials embedded in a remote URL.
func RedactURL(remoteURL string) string {
	parsed, err := url.Parse(remoteURL)
	if err != nil || parsed.User == nil {
		return remoteURL
	}
	parsed.User = url.User("***")
	return parsed.String()
}

// HTTPSRemote rewrites scp-like SSH remotes (git@host:owner/repo.git) to HTTPS so
// that token auth applies.
func HTTPSRemote(remoteURL string) string {
	if strings.Contains(remoteURL, "://") {
		return remoteURL
	}
	userHost, path, ok := strings.Cut(remoteURL, ":")
	if !ok {
		return remoteURL
	}
	_, host, found := strings.Cut(userHost, "@")
	if !found {
		host = userHost
	}
	return "https://" + host + "/" + strings.TrimPrefix(path, "/")
}

func remoteHost(remoteURL string) string {
	parsed, err := url.Parse(HTTPSRemote(remoteURL))
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// writeGitAuth sets up an isolated git config whose url rewrite injects
// $GIT_TOKEN for the host of remoteURL. It is a no-op without a token.
func writeGitAuth(sb *strings.Builder, remoteURL string) {
	sb.WriteString("# Set up isolated git config for auth\n")
	sb.WriteString("TEMP_GITCONFIG=$(mktemp)\n")
	sb.WriteString("cp ~/.gitconfig \"$TEMP_GITCONFIG\" 2>/dev/null || true\n")
	sb.WriteString("if [ -n \"${GIT_TOKEN:-}\" ]; then\n")

	host := remoteHost(remoteURL)
	user := TokenUser(remoteURL)
	sb.WriteString("    echo '[url \"https://" + user + ":'\"${GIT_TOKEN}\"'@" + host + "/\"]' >> \"$TEMP_GITCONFIG\"\n")
	sb.WriteString("    echo '    insteadOf = https://" + host + "/' >> \"$TEMP_GITCONFIG\"\n")
	sb.WriteString("    echo '    insteadOf = git@" + host + ":' >> \"$TEMP_GITCONFIG\"\n")

	sb.WriteString("fi\n")
	sb.WriteString("export GIT_CONFIG_GLOBAL=\"$TEMP_GITCONFIG\"\n\n")
}
