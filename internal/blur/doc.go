// Package blur scores still images for sharpness and classifies them as
// blurry or sharp against a threshold.
//
// The score is the statistical variance of the strongest Laplacian responses
// over a downscaled grayscale copy of the image. Flat, defocused images
// produce weak edge responses and a low variance; a fully uniform image
// scores exactly zero. Images that cannot be decoded classify as blurry so a
// corrupt frame is never retained by mistake.
package blur
