package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nownpp/data-hub-entry/internal/client/api"
)

const timeLayout = "2006-01-02 15:04"

func printCollectorData(w io.Writer, d *api.CollectorData) error {
	fmt.Fprintf(w, "Collector: %s\n", d.CollectorName)
	fmt.Fprintf(w, "Price per submission: %s (commission %s)\n",
		d.ServicePrice.StringFixed(2), d.CommissionAmount.StringFixed(2))
	fmt.Fprintf(w, "Submissions: %d\n\n", d.Total)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(d.Submissions) > 0 {
		fmt.Fprintln(tw, "ID\tNAME\tPHONE\tSTATE\tCREATED")
		for _, s := range d.Submissions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.FullName, s.PhoneNumber, submissionState(s), s.CreatedAt.Local().Format(timeLayout))
		}
		fmt.Fprintln(tw)
	}

	if len(d.Batches) > 0 {
		fmt.Fprintln(tw, "BATCH\tCOUNT\tTOTAL\tCOMMISSION\tNET\tDELIVERED\tCREATED")
		for _, b := range d.Batches {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.SubmissionsCount,
				b.TotalAmount.StringFixed(2), b.CommissionAmount.StringFixed(2), b.NetAmount.StringFixed(2),
				yesNo(b.IsDelivered), b.CreatedAt.Local().Format(timeLayout))
		}
	}

	return tw.Flush()
}

func submissionState(s api.Submission) string {
	switch {
	case s.BatchID == nil:
		return "pending"
	case s.IsDelivered:
		return "delivered"
	default:
		return "batched"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
