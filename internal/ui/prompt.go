package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// AskYesNo prints prompt to w and reads lines from r until the answer is
// yes or no. An empty line or EOF counts as no.
func AskYesNo(r io.Reader, w io.Writer, prompt string) (bool, error) {
	br := bufio.NewReader(r)
	for {
		fmt.Fprintf(w, "%s (y/n): ", prompt)
		line, err := br.ReadString('\n')
		ans := strings.ToLower(strings.TrimSpace(line))
		switch ans {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			if err == io.EOF || err == nil {
				return false, nil
			}
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}
