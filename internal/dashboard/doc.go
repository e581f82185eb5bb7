// Package dashboard serves the Vesta browser dashboard.
//
// The page, script and stylesheet under web/ are embedded into the binary.
// The dashboard talks to the API over /api/v1/ws for live state and posts
// operator commands to /api/v1/command. A directory on disk can replace the
// embedded assets while editing them.
package dashboard
