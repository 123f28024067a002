package main

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/user"
	sheetsvc "github.com/trezcool/campusconnect/services/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportExams writes the user's exam records to out, and optionally emails the file to the user.
func (cli *commandLine) exportExams(email, out string, send bool) error {
	ctx := context.Background()
	usr, err := cli.repos.Users.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	recs, err := examtrend.NewService(cli.repos.ExamRecords).List(ctx, usr.ID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = sheetsvc.WriteExamRecords(&buf, recs); err != nil {
		return errors.Wrap(err, "writing records")
	}
	if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Printf("%d records exported to %s\n", len(recs), out)

	if !send {
		return nil
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your exam records",
		TemplateName: "exam_export",
		TemplateData: struct {
			Name  string
			Count int
		}{Name: usr.Name, Count: len(recs)},
	}
	if err = msg.Attach(&buf, filepath.Base(out), xlsxContentType); err != nil {
		return errors.Wrap(err, "attaching records")
	}
	cli.mailSvc.SendMessages(msg)
	return nil
}
