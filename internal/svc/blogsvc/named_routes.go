package blogsvc

import (
	"fmt"
	"net/url"
	"strings"
)

// namedRoutes maps symbolic route names to path patterns. Parameters are
// written the chi way and filled positionally by routeURL.
//
//nolint:gochecknoglobals
var namedRoutes = map[string]string{
	"home":           "/",
	"about":          "/about",
	"register":       "/register",
	"login":          "/login",
	"logout":         "/logout",
	"account":        "/account",
	"new_post":       "/posts/new",
	"post":           "/posts/{id}",
	"update_post":    "/posts/{id}/update",
	"delete_post":    "/posts/{id}/delete",
	"user_posts":     "/user/{username}",
	"reset_request":  "/reset_password",
	"reset_password": "/reset_password/{token}",
}

// routeURL builds the path of the named route. It panics on unknown names
// so template typos surface while rendering in tests.
func routeURL(name string, params ...any) string {
	pattern, ok := namedRoutes[name]
	if !ok {
		panic(fmt.Sprintf("unknown route %q", name))
	}

	var b strings.Builder

	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 || len(params) == 0 {
			b.WriteString(pattern)

			return b.String()
		}

		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			b.WriteString(pattern)

			return b.String()
		}

		b.WriteString(pattern[:start])
		b.WriteString(url.PathEscape(fmt.Sprint(params[0])))

		pattern = pattern[start+end+1:]
		params = params[1:]
	}
}

// resolveNext turns the next query parameter of the login page into a
// redirect target. The leading slash is stripped and the rest is looked up
// as a route name or as the path of a parameterless route. Anything else
// resolves to the home page, so the redirect never leaves the site.
func resolveNext(next string) string {
	name := strings.TrimPrefix(next, "/")
	if name == "" {
		return namedRoutes["home"]
	}

	if pattern, ok := namedRoutes[name]; ok && !strings.Contains(pattern, "{") {
		return pattern
	}

	for _, pattern := range namedRoutes {
		if !strings.Contains(pattern, "{") && pattern == "/"+name {
			return pattern
		}
	}

	return namedRoutes["home"]
}
