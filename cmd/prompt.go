package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/krrrr38/gl2gh/pkg/render"
	"github.com/xanzy/go-gitlab"
)

// confirm asks a question on out and reads one answer line from in. accepted lists the answers
// that count as yes, compared case-insensitively. Pass the same *bufio.Reader for repeated
// questions so buffered answers are not lost.
func confirm(in io.Reader, out io.Writer, question string, accepted ...string) bool {
	fmt.Fprintf(out, "%s ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimSpace(line)
	for _, a := range accepted {
		if strings.EqualFold(answer, a) {
			return true
		}
	}
	return false
}

func projectTable(projects ...*gitlab.Project) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			render.Int(p.ID),
			p.PathWithNamespace,
			string(p.Visibility),
			p.DefaultBranch,
			p.SSHURLToRepo,
		})
	}
	return render.Table([]string{"ID", "Name", "Visibility", "Default Branch", "SSH URL"}, rows)
}
