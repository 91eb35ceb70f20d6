package heuristic

import (
	"regexp"
	"strings"
)

// detector flags credential material committed in a script.
type detector struct {
	re             *regexp.Regexp
	title          string
	recommendation string
}

var detectors = []detector{
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), "Private key material embedded in script", "Remove private keys from the script; load them from a secrets manager and rotate the affected keys."},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS access key exposed", "Revoke the access key and rely on IAM roles or environment provided credentials."},
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`), "GitHub token exposed", "Revoke the token and inject a minimally scoped one from CI secrets at runtime."},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "Google API key exposed", "Rotate the key, restrict it, and read it from the environment."},
	{regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`), "Slack token exposed", "Revoke the token in Slack admin and read a new one from the environment."},
	{regexp.MustCompile(`(?i)sk-[a-z0-9\-_]{20,}`), "API secret key exposed", "Revoke and rotate the key; keep keys in the environment or a secret manager."},
	{regexp.MustCompile(`(?i)authorization:\s*bearer\s+[A-Za-z0-9\-\._~\+\/]+=*`), "Bearer token hardcoded", "Pass tokens through environment variables instead of literals in curl headers."},
	{regexp.MustCompile(`(?i)(api[_-]?key|client[_-]?secret|secret|token|password)=["']?[^\s"'$]{8,}`), "Sensitive credential literal assigned", "Do not hardcode secrets. Read them from the environment or a secret manager."},
	{regexp.MustCompile(`://[^\s/:@$]+:[^\s/@$]+@`), "Credentials embedded in URL", "Strip credentials from URLs and pass them via a netrc file or environment."},
}

// risk is a shell construct with a security or performance cost.
type risk struct {
	re     *regexp.Regexp
	title  string
	advice string
}

var securityRisks = []risk{
	{regexp.MustCompile(`(curl|wget)[^|\n]*\|\s*(sudo\s+)?(ba|z)?sh\b`), "Remote code piped straight into a shell", "Download to a file, verify its checksum or signature, then execute it."},
	{regexp.MustCompile(`(?m)^\s*eval\s`), "Use of eval on dynamic input", "Avoid eval; use arrays to build commands or a case statement to dispatch."},
	{regexp.MustCompile(`chmod\s+(-R\s+)?777`), "World-writable permissions", "Grant the narrowest mode the file needs, e.g. 750 or 640."},
	{regexp.MustCompile(`rm\s+-[a-zA-Z]*r[a-zA-Z]*f?\s+\$\w+`), "Unquoted variable passed to rm -r", "Quote the variable and guard it with ${VAR:?} so an empty value cannot expand to /."},
	{regexp.MustCompile(`(?i)curl\s[^\n]*(-k|--insecure)\b`), "TLS verification disabled", "Drop -k/--insecure and fix the certificate chain instead."},
}

var performanceRisks = []risk{
	{regexp.MustCompile(`cat\s+\S+\s*\|\s*(grep|awk|sed|wc|head|tail)\b`), "Useless use of cat", "Pass the file directly to the command instead of piping cat into it."},
	{regexp.MustCompile(`for\s+\w+\s+in\s+\$\((ls|cat)\b`), "Iterating over command output word by word", "Use a glob or a while read loop so filenames with spaces survive."},
	{regexp.MustCompile(`\$\(\s*echo\s+[^)]*\|\s*(sed|awk|cut|tr)\b`), "Subshell pipeline for simple string edits", "Use parameter expansion such as ${var#prefix} or ${var//a/b} to avoid forking."},
}

var bashisms = []risk{
	{regexp.MustCompile(`\[\[`), "Uses [[ ]] tests", "Use [ ] for POSIX sh or declare a bash shebang."},
	{regexp.MustCompile(`(?m)^\s*function\s+\w+`), "Uses the function keyword", "Declare functions as name() { ... }."},
	{regexp.MustCompile(`(?m)^\s*(declare|local\s+-a|readarray|mapfile)\b`), "Uses bash arrays or declare", "Avoid arrays when targeting POSIX sh."},
	{regexp.MustCompile(`(?m)^\s*source\s`), "Uses source instead of .", "Use the POSIX . builtin."},
	{regexp.MustCompile(`echo\s+-e\b`), "Relies on echo -e", "Use printf for portable escape handling."},
	{regexp.MustCompile(`sed\s+-i\s`), "sed -i without a suffix is GNU specific", "Use sed -i.bak or write to a temporary file on BSD/macOS."},
}

// fixer turns one improvement suggestion into a literal replacement.
type fixer struct {
	suggestion  string
	explanation string
	applies     func(script string) bool
	rewrite     func(script string) (original, refactored string)
}

var (
	reRmVar     = regexp.MustCompile(`rm\s+(-[a-zA-Z]+)\s+\$(\w+)`)
	reBacktick  = regexp.MustCompile("`([^`\n]+)`")
	reCatPipe   = regexp.MustCompile("cat\\s+(\\S+)\\s*\\|\\s*(grep|wc|head|tail)((?:\\s+[^|\\n`)]+)?)")
	reStrictSet = regexp.MustCompile(`(?m)^\s*set\s+-[a-z]*e`)
)

var fixers = []fixer{
	{
		suggestion:  "Enable strict mode with set -euo pipefail so failures stop the script.",
		explanation: "Exit on errors, unset variables and failed pipeline stages instead of continuing silently.",
		applies: func(s string) bool {
			return strings.HasPrefix(s, "#!") && !reStrictSet.MatchString(s)
		},
		rewrite: func(s string) (string, string) {
			line, _, _ := strings.Cut(s, "\n")
			return line, line + "\nset -euo pipefail"
		},
	},
	{
		suggestion:  "Quote the variable passed to rm and guard it against being empty.",
		explanation: "An empty or space-containing variable makes rm delete the wrong paths.",
		applies:     reRmVar.MatchString,
		rewrite: func(s string) (string, string) {
			m := reRmVar.FindStringSubmatch(s)
			return m[0], "rm " + m[1] + ` "${` + m[2] + `:?}"`
		},
	},
	{
		suggestion:  "Replace backtick command substitution with $(...).",
		explanation: "$(...) nests cleanly and is easier to read than backticks.",
		applies:     reBacktick.MatchString,
		rewrite: func(s string) (string, string) {
			m := reBacktick.FindStringSubmatch(s)
			return m[0], "$(" + m[1] + ")"
		},
	},
	{
		suggestion:  "Pass the file directly instead of piping cat into the next command.",
		explanation: "Removes an extra process and pipe.",
		applies:     reCatPipe.MatchString,
		rewrite: func(s string) (string, string) {
			m := reCatPipe.FindStringSubmatch(s)
			return m[0], m[2] + m[3] + " " + m[1]
		},
	},
}
