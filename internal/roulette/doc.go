// Package roulette implementa a mesa de roleta europeia no lado do servidor:
// tabela de pagamentos, sorteio seguro, ledger de apostas, sessão com máquina
// de estados de liquidação e o registro de sessões com expiração por inatividade.
//
// O pacote não conhece transporte nem serialização; recebe operações já
// decodificadas e devolve resultados tipados.
package roulette
