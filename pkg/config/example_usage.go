package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     cfg, err := config.Load("", map[string]interface{}{"url": "https://example.com/gallery"})
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with a custom config file and flag overrides:
//
//     flags := map[string]interface{}{
//         "url":             "https://example.com/gallery",
//         "output-dir":      "./pictures",
//         "threads":         8,
//         "skip-duplicates": true,
//         "log-level":       "debug",
//     }
//     cfg, err := config.Load("/path/to/config.yaml", flags)
//
// 3. Environment variables (also read from .env):
//
//     GALLERYSCRAPER_OUTPUT_DIR=./pictures
//     GALLERYSCRAPER_THREADS=8
//     GALLERYSCRAPER_SKIP_DUPLICATES=true
//     GALLERYSCRAPER_MIN_AREA=2500
//     GALLERYSCRAPER_DENYLIST=logo,icon,avatar
//     GALLERYSCRAPER_LOG_LEVEL=debug
//
// 4. Example configuration file (.galleryscraper.yaml):
//
//     scrape:
//       output_dir: ./pictures
//       threads: 4
//       skip_duplicates: true
//     http:
//       timeout: 30s
//       max_retries: 5
//     classifier:
//       min_group_size: 2
//       min_area: 2500
//       denylist: [icon, logo, avatar, thumbnail-nav, ad]
//     logging:
//       level: info
//       file: /tmp/galleryscraper.log
