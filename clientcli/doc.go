// Package clientcli provides a client library for interacting with mediafold
// gateway servers.
//
// It supports listing, uploading, batched copy/move/delete actions, capability
// URL issuance, and downloads through capability URLs, with HTTP basic
// authentication on the management API. The package includes profile-based
// configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Username: "admin",
//		Password: "your-password",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./photo.jpg",
//		TargetDir: "albums/2026",
//	})
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile("~/.mediafold/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
