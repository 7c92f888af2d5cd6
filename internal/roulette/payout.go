package roulette

// multipliers mapeia a quantidade de números cobertos para o retorno total (prêmio + aposta)
var multipliers = map[int]int64{
	1:  36, // straight
	2:  18, // split
	3:  12, // street
	4:  9,  // corner
	6:  6,  // line
	12: 3,  // dozen/column
	18: 2,  // even-money
}

// Multiplier retorna o multiplicador de retorno total para n números cobertos
// Tamanhos fora da tabela retornam 0; a validação na colocação impede que cheguem aqui
func Multiplier(n int) int64 {
	return multipliers[n]
}

// Payout calcula o retorno total de uma aposta para o número sorteado
func Payout(numbers []int, amount int64, winning int) int64 {
	for _, n := range numbers {
		if n == winning {
			return amount * Multiplier(len(numbers))
		}
	}
	return 0
}
