package ports

import "context"

// PackageInstaller installs Python dependencies through a package manager.
type PackageInstaller interface {
	InstallFile(ctx context.Context, requirementsPath string) error
	InstallPackages(ctx context.Context, packages []string) error
}
