/*
qboconnect v0.1.0

Summary:

QBOConnect is an http server that connects a QuickBooks Online company
to an application. It runs the Intuit OAuth2 authorization code flow,
saves the access token, refresh token and realm id of each successful
authorization to a PostgreSQL table, and then confirms the connection
by fetching the company's CompanyInfo.

Endpoints:

	/          shows the configured environment and a link to /connect
	/connect   redirects to the Intuit authorization page
	/callback  the oauth2 redirect target
	/livez     liveness probe

Settings are taken from command line options, the environment or a
.env file; run with --help for details.

The qbo package can also be used on its own; see examples/example.go.

This software is provided under an MIT licence, with no warranty.
*/

package main
