package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"diskforge/internal/model"
	"diskforge/internal/ops"
	"diskforge/internal/safety"
	"diskforge/internal/session"
)

// render emits v as JSON when --json was passed, otherwise calls text to
// render it as plain output.
func render(v any, text func()) {
	if flags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	text()
}

// requireConfirmation enforces §4.3's rule that every non-READ_ONLY,
// non-CREATE operation needs its per-target token typed back, in addition
// to danger mode being armed. confirm is the --confirm flag's value.
func requireConfirmation(sess *session.Session, opType model.OperationType, target, confirm string) error {
	if opType == model.OperationReadOnly || opType == model.OperationCreate {
		return nil
	}
	want := safety.GenerateConfirmationString(target)
	if confirm == "" {
		return fmt.Errorf("this operation requires --confirm %q (type the confirmation token exactly)", want)
	}
	ok, msg := sess.Safety.VerifyConfirmation(target, confirm, uuid.NewString())
	if !ok {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// planAndCheck builds the ExecutionPlan for a destructive operation (§4.3,
// §4.5) by resolving the target's size and mount status through the
// Platform Backend (and the source's size via resolveSourceSize, when the
// operation has one worth comparing against), then runs the Safety Gate's
// registered preflight checks against it. A report with any error-severity
// failure (low battery, a mounted target, a target smaller than the source)
// is returned as a PreconditionFailed error before the job is ever
// submitted (§7); nothing here touches a device.
func planAndCheck(sess *session.Session, opType model.OperationType, description, target string, steps []string, resolveSourceSize func() (uint64, bool)) (safety.ExecutionPlan, error) {
	ctx := context.Background()
	pctx := safety.PreflightContext{TargetPath: target}

	if mounted, err := sess.Platform().GetMountedDevices(ctx); err == nil {
		pctx.MountedPaths = make(map[string]bool, len(mounted))
		for path := range mounted {
			pctx.MountedPaths[path] = true
		}
	}
	if resolveSourceSize != nil {
		if size, ok := resolveSourceSize(); ok {
			pctx.SourceSizeBytes = size
		}
	}
	if size, ok := extentSizeBytes(ctx, sess, target); ok {
		pctx.TargetSizeBytes = size
	}

	plan := sess.Safety.Plan(opType, description, target, steps, nil, 0, pctx)
	if plan.Preflight.HasErrors() {
		return plan, fmt.Errorf("%s", firstPreflightError(plan.Preflight))
	}
	return plan, nil
}

func extentSizeBytes(ctx context.Context, sess *session.Session, path string) (uint64, bool) {
	if disk, err := sess.Platform().GetDiskInfo(ctx, path); err == nil && disk != nil {
		return disk.SizeBytes, true
	}
	if part, err := sess.Platform().GetPartitionInfo(ctx, path); err == nil && part != nil {
		return part.SizeBytes, true
	}
	return 0, false
}

func firstPreflightError(r safety.PreflightReport) string {
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == safety.SeverityError {
			return c.Message
		}
	}
	return "precondition failed"
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Enumerate every disk and its partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			result, code := runJob(sess, session.Spec{
				Name: "list", Description: "List disk inventory",
				Priority: 5, OperationType: model.OperationReadOnly,
				Job: &ops.ListDisksJob{Backend: sess.Platform()},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}

			inv, _ := result.Data.(*model.Inventory)
			render(inv, func() { printInventory(inv) })
			return nil
		},
	}
}

func printInventory(inv *model.Inventory) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tSIZE\tTYPE\tSTYLE\tMODEL")
	for _, d := range inv.Disks {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", d.DevicePath, d.SizeBytes, d.DiskType, d.PartitionStyle, d.Model)
		for _, p := range d.Partitions {
			fmt.Fprintf(w, "  %s\t%d\t%s\t\t%s\n", p.DevicePath, p.SizeBytes, p.FileSystem, p.Mountpoint)
		}
	}
	_ = w.Flush()
	if len(inv.ParseErrors) > 0 {
		fmt.Fprintln(os.Stderr, "Parse warnings:")
		for _, e := range inv.ParseErrors {
			fmt.Fprintln(os.Stderr, " -", e)
		}
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <device>",
		Short: "Describe one disk in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			result, code := runJob(sess, session.Spec{
				Name: "info", Description: "Describe " + args[0],
				Priority: 5, OperationType: model.OperationReadOnly,
				Job: &ops.DiskInfoJob{Backend: sess.Platform(), DevicePath: args[0]},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}

			disk, _ := result.Data.(*model.Disk)
			render(disk, func() {
				fmt.Printf("%s  %d bytes  %s  %s\n", disk.DisplayName(), disk.SizeBytes, disk.DiskType, disk.PartitionStyle)
				for _, p := range disk.Partitions {
					fmt.Printf("  #%d %s  %d bytes  %s  %s\n", p.Number, p.DevicePath, p.SizeBytes, p.FileSystem, p.Mountpoint)
				}
			})
			return nil
		},
	}
}

func newCreatePartitionCmd() *cobra.Command {
	var opts model.PartitionCreateOptions
	var fsName string
	cmd := &cobra.Command{
		Use:   "create-partition <disk>",
		Short: "Create a new partition on a disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DiskPath = args[0]
			opts.FileSystem = model.ParseFileSystem(fsName)

			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationCreate, opts.DiskPath, ""); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "create-partition", Description: "Create partition on " + opts.DiskPath,
				Priority: 5, OperationType: model.OperationCreate,
				Job: &ops.CreatePartitionJob{Backend: sess.Platform(), Options: opts},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().Uint64Var(&opts.SizeBytes, "size-bytes", 0, "Partition size in bytes")
	cmd.Flags().StringVar(&fsName, "filesystem", "ext4", "Filesystem to create")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Partition label")
	cmd.Flags().Uint64Var(&opts.AlignToMB, "align-to-mb", 0, "Alignment boundary in MiB")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would happen without touching the disk")
	return cmd
}

func newDeletePartitionCmd() *cobra.Command {
	var dryRun bool
	var confirm string
	cmd := &cobra.Command{
		Use:   "delete-partition <partition>",
		Short: "Delete an existing partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationDelete, args[0], confirm); err != nil {
				return err
			}
			if _, err := planAndCheck(sess, model.OperationDelete, "Delete "+args[0], args[0],
				[]string{"resolve target", "check target not mounted", "delete the partition table entry"}, nil); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "delete-partition", Description: "Delete " + args[0],
				Priority: 5, OperationType: model.OperationDelete,
				Job: &ops.DeletePartitionJob{Backend: sess.Platform(), DevicePath: args[0], DryRun: dryRun},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without touching the disk")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Confirmation token (see the denial message for its exact value)")
	return cmd
}

func newFormatCmd() *cobra.Command {
	var opts model.FormatOptions
	var fsName string
	var confirm string
	cmd := &cobra.Command{
		Use:   "format <partition>",
		Short: "Format a partition in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PartitionPath = args[0]
			opts.FileSystem = model.ParseFileSystem(fsName)

			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationModify, opts.PartitionPath, confirm); err != nil {
				return err
			}
			if _, err := planAndCheck(sess, model.OperationModify, "Format "+opts.PartitionPath, opts.PartitionPath,
				[]string{"resolve target", "check target not mounted", "run mkfs"}, nil); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "format", Description: "Format " + opts.PartitionPath + " as " + string(opts.FileSystem),
				Priority: 5, OperationType: model.OperationModify,
				Job: &ops.FormatPartitionJob{Backend: sess.Platform(), Options: opts},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&fsName, "filesystem", "ext4", "Filesystem to format with")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Volume label")
	cmd.Flags().BoolVar(&opts.QuickFormat, "quick", true, "Quick format instead of a full format")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would happen without touching the disk")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Confirmation token (see the denial message for its exact value)")
	return cmd
}

func newCloneCmd() *cobra.Command {
	var verify bool
	var dryRun bool
	var confirm string
	cmd := &cobra.Command{
		Use:   "clone <src> <tgt>",
		Short: "Clone one whole device onto another, block for block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := model.CloneOptions{SourcePath: args[0], TargetPath: args[1], Verify: verify, DryRun: dryRun}

			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationClone, opts.TargetPath, confirm); err != nil {
				return err
			}
			if _, err := planAndCheck(sess, model.OperationClone, "Clone "+opts.SourcePath+" to "+opts.TargetPath, opts.TargetPath,
				[]string{"resolve source and target", "check system disk and mount guards", "verify target size", "stream-copy with checksum", "optional verify pass"},
				func() (uint64, bool) { return extentSizeBytes(context.Background(), sess, opts.SourcePath) }); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "clone", Description: "Clone " + opts.SourcePath + " to " + opts.TargetPath,
				Priority: 5, OperationType: model.OperationClone,
				Job: &ops.CloneDiskJob{Backend: sess.Platform(), Options: opts},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", true, "Verify the clone with a byte-compare pass")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without touching either device")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Confirmation token (see the denial message for its exact value)")
	return cmd
}

func newBackupCmd() *cobra.Command {
	var compression string
	var verify bool
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "backup <src> <out>",
		Short: "Back a device up to a (optionally compressed) image file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if compression == "none" {
				compression = string(model.CompressionNone)
			}
			opts := model.ImageOptions{
				SourcePath:  args[0],
				OutputPath:  args[1],
				Compression: model.Compression(compression),
				Verify:      verify,
				DryRun:      dryRun,
			}

			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationCreate, opts.SourcePath, ""); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "backup", Description: "Back up " + opts.SourcePath + " to " + opts.OutputPath,
				Priority: 5, OperationType: model.OperationCreate,
				Job: &ops.CreateImageJob{Backend: sess.Platform(), Options: opts},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}

			info, _ := result.Data.(*model.ImageInfo)
			render(info, func() {
				fmt.Printf("Image written to %s (%d bytes, checksum %s)\n", info.Path, info.ImageSizeBytes, info.Checksum)
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&compression, "compression", "zstd", "Compression codec: none, gzip, lz4, zstd")
	cmd.Flags().BoolVar(&verify, "verify", true, "Hash the plaintext stream for later restore verification")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without reading the source")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var verify bool
	var dryRun bool
	var confirm string
	cmd := &cobra.Command{
		Use:   "restore <image> <tgt>",
		Short: "Restore a previously created image back onto a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := model.RestoreOptions{ImagePath: args[0], TargetPath: args[1], Verify: verify, DryRun: dryRun}

			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationRestore, opts.TargetPath, confirm); err != nil {
				return err
			}
			if _, err := planAndCheck(sess, model.OperationRestore, "Restore "+opts.ImagePath+" onto "+opts.TargetPath, opts.TargetPath,
				[]string{"resolve target", "check system disk and mount guards", "verify target size", "stream-restore with checksum verify"},
				func() (uint64, bool) {
					info, err := sess.Platform().GetImageInfo(context.Background(), opts.ImagePath)
					if err != nil || info == nil {
						return 0, false
					}
					return info.SourceSizeBytes, true
				}); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "restore", Description: "Restore " + opts.ImagePath + " onto " + opts.TargetPath,
				Priority: 5, OperationType: model.OperationRestore,
				Job: &ops.RestoreImageJob{Backend: sess.Platform(), Options: opts},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", true, "Compare the restored checksum against the image sidecar")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without touching the target")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Confirmation token (see the denial message for its exact value)")
	return cmd
}

func newRescueCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "rescue <out>",
		Short: "Build a bootable rescue-media image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			if err := requireConfirmation(sess, model.OperationCreate, args[0], ""); err != nil {
				return err
			}

			result, code := runJob(sess, session.Spec{
				Name: "rescue", Description: "Create rescue media at " + args[0],
				Priority: 5, OperationType: model.OperationCreate,
				Job: &ops.CreateRescueMediaJob{Backend: sess.Platform(), TargetPath: args[0], DryRun: dryRun},
			})
			setExit(code)
			if !result.Success {
				fmt.Fprintln(os.Stderr, "Error:", result.Error)
				return nil
			}
			render(result.Data, func() { fmt.Println("Rescue media written to", args[0]) })
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without writing anything")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Safety Gate's current danger-mode state",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closer, err := openSession()
			if err != nil {
				return err
			}
			defer closer()

			mode := sess.DangerMode()
			render(map[string]string{"danger_mode": string(mode), "session_id": sess.ID}, func() {
				fmt.Printf("danger mode: %s\nsession: %s\n", mode, sess.ID)
			})
			setExit(exitSuccess)
			return nil
		},
	}
}
