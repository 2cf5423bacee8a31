package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide explains where the four OAuth1 secrets come from
func ShowCredentialGuide(w io.Writer) {
	line := strings.Repeat("=", 72)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "TWITTER API CREDENTIALS")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "twhydrate signs every request with OAuth 1.0a user context and needs")
	fmt.Fprintln(w, "four values from your app in the developer portal:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open https://developer.twitter.com/en/portal/dashboard")
	fmt.Fprintln(w, "  2. Select your project and app, then 'Keys and tokens'")
	fmt.Fprintln(w, "  3. Under 'Consumer Keys' copy the API Key and API Key Secret")
	fmt.Fprintln(w, "  4. Under 'Authentication Tokens' generate the Access Token and Secret")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  consumer key     API Key")
	fmt.Fprintln(w, "  consumer secret  API Key Secret")
	fmt.Fprintln(w, "  access key       Access Token")
	fmt.Fprintln(w, "  access secret    Access Token Secret")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The secrets are kept in the system keychain when one is available,")
	fmt.Fprintln(w, "otherwise in an encrypted file. They can also be supplied with the")
	fmt.Fprintf(w, "%s, %s, %s and %s\n", EnvConsumerKey, EnvConsumerSecret, EnvAccessKey, EnvAccessSecret)
	fmt.Fprintln(w, "environment variables.")
	fmt.Fprintln(w, line)
}
