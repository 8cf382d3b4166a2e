// Package scraper runs one gallery scrape from start to finish.
//
// A run fetches the page, extracts every image element, classifies the
// gallery and hands each candidate to a bounded worker pool that resolves,
// downloads and saves it:
//
//	page := client.GetPage(url)
//	images := extract.Images(document.ParseBytes(page.Body, page.URL))
//	candidates := classifier.Classify(images)
//	pool: resolver.Resolve -> client.Download -> storage.Save
//
// Only an unusable output directory or an unreachable page stop the run.
// Every other failure is logged, counted in the Summary and skipped.
//
// Usage:
//
//	cfg, err := config.Load("", flags)
//	if err != nil {
//	    return err
//	}
//
//	s := scraper.New(cfg, logger.GetLogger())
//	summary, err := s.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d images saved to %s\n", summary.Downloaded, summary.OutputDir)
package scraper
