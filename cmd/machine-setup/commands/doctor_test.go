package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/doctor"
)

func TestValidateDoctorFlags(t *testing.T) {
	origJSON, origQuiet, origVerbose := doctorJSON, doctorQuiet, doctorVerbose
	defer func() {
		doctorJSON, doctorQuiet, doctorVerbose = origJSON, origQuiet, origVerbose
	}()

	tests := []struct {
		name    string
		json    bool
		quiet   bool
		verbose bool
		wantErr bool
	}{
		{"none", false, false, false, false},
		{"json only", true, false, false, false},
		{"quiet only", false, true, false, false},
		{"verbose only", false, false, true, false},
		{"json and quiet", true, true, false, true},
		{"all three", true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doctorJSON, doctorQuiet, doctorVerbose = tt.json, tt.quiet, tt.verbose
			err := validateDoctorFlags(nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDoctorFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func sampleReport() *doctor.Report {
	return &doctor.Report{
		Timestamp: time.Now().UTC(),
		Results: []*doctor.CheckResult{
			{Name: "platform-support", Category: "platform", Status: doctor.SeverityPass, Message: "running on mac"},
			{Name: "manager-rbenv", Category: "manager", Status: doctor.SeverityWarning,
				Message: "rbenv is not installed", FixHint: "run machine-setup bootstrap to install it"},
			{Name: "startup-file", Category: "shell", Status: doctor.SeverityError,
				Message: "/home/u/.zshrc is not writable", FixHint: "chmod u+w /home/u/.zshrc"},
		},
		Summary: doctor.Summary{Passed: 1, Warnings: 1, Errors: 1},
	}
}

func TestOutputDoctorTextDefaultHidesPasses(t *testing.T) {
	origVerbose := doctorVerbose
	defer func() { doctorVerbose = origVerbose }()
	doctorVerbose = false

	var sb strings.Builder
	if err := outputDoctorText(&sb, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if strings.Contains(out, "platform-support") {
		t.Errorf("passed check shown in default mode:\n%s", out)
	}
	if !strings.Contains(out, "rbenv is not installed") {
		t.Errorf("warning missing:\n%s", out)
	}
	if !strings.Contains(out, "hint: chmod u+w /home/u/.zshrc") {
		t.Errorf("fix hint missing:\n%s", out)
	}
	if !strings.Contains(out, "Summary: 1 passed, 0 info, 1 warnings, 1 errors") {
		t.Errorf("summary line missing:\n%s", out)
	}
}

func TestOutputDoctorTextVerboseShowsAll(t *testing.T) {
	origVerbose := doctorVerbose
	defer func() { doctorVerbose = origVerbose }()
	doctorVerbose = true

	var sb strings.Builder
	if err := outputDoctorText(&sb, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "platform-support") {
		t.Errorf("verbose mode must show passed checks:\n%s", sb.String())
	}
}
