package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide explains how to copy a logged-in browser session into
// the --cookies flag.
func WriteCookieGuide(w io.Writer, portalURL string) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "USING AN EXISTING BROWSER SESSION")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "1. Log in to %s in your browser.\n", portalURL)
	fmt.Fprintln(w, "2. Open Developer Tools (F12) and switch to the Network tab.")
	fmt.Fprintln(w, "3. Reload the page and select any request to the portal.")
	fmt.Fprintln(w, "4. Under Request Headers, copy the whole value of the 'Cookie:' line.")
	fmt.Fprintln(w, "5. Pass it on the command line or through the environment:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "     coursemirror mirror <course-url> --cookies 'ASP.NET_SessionId=...; .ASPXAUTH=...'")
	fmt.Fprintln(w, "     export COURSEMIRROR_COOKIES='ASP.NET_SessionId=...; .ASPXAUTH=...'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The session expires when you log out or after a period of inactivity.")
	fmt.Fprintln(w, "These cookies give full access to your account. Do not share them.")
	fmt.Fprintln(w, rule)
}
