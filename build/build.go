// Script to build the infraglue binaries. It is not required, but it inserts
// the version date and commit into the binaries, which `go build` will not do
// by default.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ryanuber/go-glob"
)

var (
	shaFlag      = flag.String("sha", "", "SHA to embed.")
	onlyFlag     = flag.String("only", "", "Only build programs matching this glob, e.g. bigip_*.")
	output       = flag.String("output", "", "Output directory; defaults to $GOPATH/bin.")
	targetOS     = flag.String("goos", "", "GOOS to build for; the Ansible modules run on the managed hosts.")
	officialFlag = flag.Bool("release", false, "Mark the binaries as an official build.")

	allProgs = []string{
		"opsmetrics",
		"bigip_gtm_facts",
		"bigip_gtm_pool",
		"bigip_sys_connection",
		"zenoss",
		"unzip",
		"topowershell",
	}
)

func main() {
	flag.Parse()
	// Get current commit SHA
	sha := *shaFlag
	if sha == "" {
		cmd := exec.Command("git", "rev-parse", "HEAD")
		cmd.Stderr = os.Stderr
		output, err := cmd.Output()
		if err != nil {
			log.Fatal(err)
		}
		sha = strings.TrimSpace(string(output))
	}

	timeStr := time.Now().UTC().Format("20060102150405")
	ldFlags := fmt.Sprintf("-X infraglue.org/version.VersionSHA=%s -X infraglue.org/version.VersionDate=%s", sha, timeStr)
	if *officialFlag {
		ldFlags += " -X infraglue.org/version.OfficialBuild=1"
	}

	for _, app := range allProgs {
		if *onlyFlag != "" && !glob.Glob(*onlyFlag, app) {
			continue
		}
		fmt.Println("building", app)
		var args []string
		if *output != "" {
			name := app
			if *targetOS == "windows" {
				name += ".exe"
			}
			args = append(args, "build", "-o", filepath.Join(*output, name))
		} else {
			args = append(args, "install")
		}
		args = append(args, "-ldflags", ldFlags, "infraglue.org/cmd/"+app)
		fmt.Println("go", strings.Join(args, " "))
		cmd := exec.Command("go", args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if *targetOS != "" {
			cmd.Env = append(os.Environ(), "GOOS="+*targetOS)
		}
		if err := cmd.Run(); err != nil {
			log.Fatal(err)
		}
	}
}
