// Command topowershell reads a YAML mapping on standard input and prints it
// as a PowerShell hashtable literal, for Ansible templates that feed
// PowerShell DSC resources.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v1"

	"infraglue.org/powershell"
	"infraglue.org/slog"
	"infraglue.org/version"
)

var flagVersion = flag.Bool("version", false, "Prints the version and exits")

func main() {
	flag.Parse()
	if *flagVersion {
		fmt.Println(version.GetVersionInfo("topowershell"))
		os.Exit(0)
	}
	b, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		slog.Fatal(err)
	}
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		slog.Fatalf("parse input: %v", err)
	}
	s, ok := powershell.ToPowershell(v)
	if !ok {
		slog.Fatalf("input is not a mapping")
	}
	fmt.Println(s)
}
