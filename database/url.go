package database

import (
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name. The database name is
// inserted ahead of any query string and sslmode=disable is added unless the URL
// already sets an sslmode. An empty database name returns baseURL unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	server, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	server = strings.TrimRight(server, "/")

	var b strings.Builder
	b.WriteString(server)
	b.WriteString("/")
	b.WriteString(databaseName)

	var params []string
	if hasQuery && query != "" {
		params = append(params, query)
	}
	if !strings.Contains(query, "sslmode=") {
		params = append(params, "sslmode=disable")
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String()
}
