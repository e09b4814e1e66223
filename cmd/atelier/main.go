package main

import "os"

func main() {
	rootCmd.AddCommand(companyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
