package heuristic

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
)

const maxFlowNodes = 10

// breakdown explains the flags of the longest command line.
func breakdown(lines []string) []analysis.CommandPart {
	var longest string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if len(t) > len(longest) {
			longest = t
		}
	}
	parts := []analysis.CommandPart{}
	fields := strings.Fields(longest)
	if len(fields) == 0 {
		return parts
	}
	parts = append(parts, analysis.CommandPart{Part: fields[0], Explanation: "The command being invoked."})
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "-") {
			parts = append(parts, analysis.CommandPart{Part: f, Explanation: "Option passed to " + fields[0] + "."})
		}
	}
	return parts
}

func flowchart(lines []string) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(`    N0["Start"]` + "\n")
	n := 0
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if n == maxFlowNodes {
			break
		}
		n++
		label := strings.ReplaceAll(t, `"`, "&quot;")
		if len(label) > 60 {
			label = label[:57] + "..."
		}
		fmt.Fprintf(&sb, "    N%d --> N%d[\"%s\"]\n", n-1, n, label)
	}
	fmt.Fprintf(&sb, "    N%d --> N%d[\"End\"]", n, n+1)
	return sb.String()
}

func batsSuite() string {
	return `#!/usr/bin/env bats

setup() {
  SCRIPT="$BATS_TEST_DIRNAME/../script.sh"
}

@test "script exits successfully" {
  run bash "$SCRIPT"
  [ "$status" -eq 0 ]
}

@test "script passes bash syntax check" {
  run bash -n "$SCRIPT"
  [ "$status" -eq 0 ]
}`
}

func pythonWrapper(script string) string {
	return fmt.Sprintf(`#!/usr/bin/env python3
import subprocess
import sys

SCRIPT = %q


def main() -> int:
    return subprocess.run(["bash", "-c", SCRIPT], check=False).returncode


if __name__ == "__main__":
    sys.exit(main())`, script)
}

func powershellWrapper(script string) string {
	body := strings.ReplaceAll(script, "'@", "' @")
	return "$script = @'\n" + body + "\n'@\n& bash -c $script\nexit $LASTEXITCODE"
}

func scaffold(r analysis.Result) analysis.GithubRepo {
	var readme strings.Builder
	readme.WriteString("# script\n\n")
	readme.WriteString(r.Summary + "\n\n## Usage\n\n```bash\n./script.sh\n```\n")
	if len(r.Suggestions) > 0 {
		readme.WriteString("\n## Known improvements\n\n")
		for _, s := range r.Suggestions {
			readme.WriteString("- " + s + "\n")
		}
	}
	return analysis.GithubRepo{
		ReadmeContent:     readme.String(),
		GitignoreContent:  "*.log\n*.tmp\n.env",
		FileStructure:     ".\n├── README.md\n├── script.sh\n├── Dockerfile\n└── test\n    └── script.bats",
		DockerfileContent: "FROM alpine:3.20\nRUN apk add --no-cache bash\nCOPY script.sh /usr/local/bin/script.sh\nENTRYPOINT [\"bash\", \"/usr/local/bin/script.sh\"]",
		ManPageContent:    ".TH SCRIPT 1\n.SH NAME\nscript \\- shell utility\n.SH SYNOPSIS\n.B script.sh\n.SH DESCRIPTION\n" + r.Summary,
		PullRequestTitle:  "Add script with tests and container image",
		PullRequestBody:   "Adds the script, a bats suite and a Dockerfile.\n\n" + r.Summary,
	}
}
