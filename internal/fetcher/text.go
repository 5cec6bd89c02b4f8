package fetcher

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeText converts body to a UTF-8 string using the charset parameter of
// contentType. Bodies without a declared charset are taken as UTF-8.
func DecodeText(body []byte, contentType string) (string, error) {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = strings.ToLower(params["charset"])
		}
	}

	if charset == "" || charset == "utf-8" || charset == "utf8" {
		if !utf8.Valid(body) {
			return "", eris.New("fetcher: body is not valid utf-8")
		}
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: decode %s body", charset)
	}
	return string(out), nil
}
